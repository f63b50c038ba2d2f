package handlers

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerValidatorOnce sync.Once

// useJSONFieldNames makes validation errors name fields the way clients send
// them: json tag first, then form tag.
func useJSONFieldNames() {
	registerValidatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, key := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})
	})
}

// bindingErrorBody describes a bind failure. Struct validation failures list
// the offending fields with the rule they broke.
func bindingErrorBody(prefix string, err error) gin.H {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return gin.H{"error": prefix + ": " + err.Error()}
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Namespace()] = fe.Tag()
	}
	return gin.H{"error": prefix + ": validation failed", "fields": fields}
}
