// util/validation_util.go

package util

import (
	"fmt"

	"github.com/pbirs-tools/admin-api/model"
)

type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

func (v *ValidationUtil) ValidateGetPermissions(req model.GetPermissionsRequest) error {
	if req.ItemID == "" && req.ItemPath == "" {
		return fmt.Errorf("either itemId or itemPath must be provided")
	}
	return nil
}

func (v *ValidationUtil) ValidateCheckPermissions(users []string) error {
	if len(users) == 0 {
		return fmt.Errorf("at least one userName must be provided")
	}
	for _, user := range users {
		if user == "" {
			return fmt.Errorf("userName cannot be empty")
		}
	}
	return nil
}

func (v *ValidationUtil) ValidateSetPermissions(req model.SetPermissionsRequest) error {
	if req.ItemID == "" && req.ItemPath == "" {
		return fmt.Errorf("either itemId or itemPath must be provided")
	}
	if req.UserName == "" {
		return fmt.Errorf("userName cannot be empty")
	}
	// An empty roles list is valid: it is the removal signal.
	return nil
}
