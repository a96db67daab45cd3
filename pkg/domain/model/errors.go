package model

import "github.com/m-mizutani/goerr/v2"

// Error tags for failure classification. Transport attaches the most
// specific tags it can determine; callers branch on tags, never on
// message text.
var (
	ErrTagNetwork            = goerr.NewTag("network")
	ErrTagHTTPStatus         = goerr.NewTag("http_status")
	ErrTagUnexpectedResponse = goerr.NewTag("unexpected_response")
	ErrTagAPIError           = goerr.NewTag("api_error")
	ErrTagValidation         = goerr.NewTag("validation")
	ErrTagNotFound           = goerr.NewTag("not_found")
	ErrTagPermission         = goerr.NewTag("permission")
)

// Sentinel errors for domain operations
var (
	ErrMemberNotFound        = goerr.New("member not found", goerr.T(ErrTagNotFound))
	ErrMemberAlreadyDeleted  = goerr.New("member not found or already deleted", goerr.T(ErrTagNotFound))
	ErrGroupNotFound         = goerr.New("group not found", goerr.T(ErrTagNotFound))
	ErrPermissionDenied      = goerr.New("permission denied", goerr.T(ErrTagPermission))
	ErrInvalidMemberData     = goerr.New("invalid member data", goerr.T(ErrTagValidation))
	ErrMissingRequiredFields = goerr.New("missing required fields: name, email, authority, type", goerr.T(ErrTagValidation))
	ErrNoRolesAvailable      = goerr.New("role_id is required and no roles are available as fallback", goerr.T(ErrTagValidation))
)
