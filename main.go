package main

import (
	"context"
	"os"

	"github.com/dicloak-labs/dicloak-console/pkg/cli"
	"github.com/dicloak-labs/dicloak-console/pkg/utils/apperr"
)

func main() {
	ctx := context.Background()
	if err := cli.Run(ctx, os.Args); err != nil {
		apperr.Handle(ctx, err)
		os.Exit(1)
	}
}
