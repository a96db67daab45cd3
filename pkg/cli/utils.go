package cli

import (
	"encoding/json"
	"os"

	"github.com/dicloak-labs/dicloak-console/pkg/cli/config"
	"github.com/dicloak-labs/dicloak-console/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// joinFlags combines multiple flag slices into one
func joinFlags(flags ...[]cli.Flag) []cli.Flag {
	var result []cli.Flag
	for _, f := range flags {
		result = append(result, f...)
	}
	return result
}

// buildConsole wires a console from the shared connection configuration
func buildConsole(dicloakCfg *config.DICloak, intervalsCfg *config.Intervals) (*usecase.Console, error) {
	if err := dicloakCfg.Validate(); err != nil {
		return nil, err
	}
	if dicloakCfg.APIKey == "" {
		return nil, goerr.New("API key is required. Set --api-key or DICLOAK_API_KEY")
	}

	client := dicloakCfg.Configure(intervalsCfg.Configure())
	return usecase.NewConsole(client), nil
}

// printJSON writes v to stdout as indented JSON
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return goerr.Wrap(err, "failed to encode output")
	}
	return nil
}
