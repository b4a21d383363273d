package validator

import (
	"fmt"

	"ctchen222/tictactoe-core/internal/score"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// game_mode accepts the modes the score ledger tracks.
	err := validate.RegisterValidation("game_mode", func(fl validator.FieldLevel) bool {
		return score.Mode(fl.Field().String()).Valid()
	})
	if err != nil {
		panic(fmt.Errorf("unable to register game_mode validation: %w", err))
	}
}

func GetValidator() *validator.Validate {
	return validate
}
