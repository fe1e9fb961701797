package progress

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/maendeleo/core"
)

var (
	itemTypeTag  = "itemtype"
	itemTypeText = "must be one of: Milestone, Stage, Task, Subtask"

	itemStatusTag  = "itemstatus"
	itemStatusText = "must be one of: Locked, In Progress, Completed"
)

// InitValidators registers progress domain validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(itemTypeTag, oneOfValidation(ItemTypes))
	core.RegisterCustomTranslation(validate, translator, itemTypeTag, itemTypeText)

	_ = validate.RegisterValidation(itemStatusTag, oneOfValidation(Statuses))
	core.RegisterCustomTranslation(validate, translator, itemStatusTag, itemStatusText)
}

func oneOfValidation(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		val := fl.Field().String()
		for _, a := range allowed {
			if val == a {
				return true
			}
		}
		return false
	}
}
