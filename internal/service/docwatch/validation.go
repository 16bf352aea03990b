package docwatch

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/nglaszik/docwatch/internal/config"
	"github.com/nglaszik/docwatch/internal/domain"
)

var (
	nameRules  = []validation.Rule{validation.Required, validation.Length(1, config.MaxNodeNameLength)}
	ownerRules = []validation.Rule{validation.Required}
	docIDRules = []validation.Rule{validation.Required, validation.Length(1, config.MaxDocIDLength)}
)

// asValidation converts an ozzo error into the domain taxonomy.
func asValidation(err error) error {
	if err == nil {
		return nil
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return err
	}
	return &domain.ValidationError{Message: err.Error()}
}

func validateOwner(owner string) error {
	return asValidation(validation.Errors{"owner": validation.Validate(owner, ownerRules...)}.Filter())
}

// normalizeDocID is applied to every doc id a service receives, so lookups
// agree with what Register stored.
func normalizeDocID(id string) string {
	return strings.TrimSpace(id)
}

// trimmed returns a trimmed copy of s, keeping nil as nil.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// rootIfEmpty maps an empty id to the root.
func rootIfEmpty(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	return id
}
