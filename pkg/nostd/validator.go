package nostd

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zhtranslations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/labstack/echo/v4"
)

// CustomValidator echo 请求参数校验器，错误信息翻译为中文
type CustomValidator struct {
	Validator *validator.Validate
	trans     ut.Translator
}

func (cv *CustomValidator) TransInit() error {
	zhLocale := zh.New()
	uni := ut.New(zhLocale, zhLocale)
	trans, ok := uni.GetTranslator("zh")
	if !ok {
		return errors.New("zh translator not found")
	}
	if err := zhtranslations.RegisterDefaultTranslations(cv.Validator, trans); err != nil {
		return err
	}
	cv.trans = trans
	return nil
}

func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.Validator.Struct(i)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) && cv.trans != nil {
		messages := make([]string, 0, len(errs))
		for _, e := range errs {
			messages = append(messages, e.Translate(cv.trans))
		}
		return echo.NewHTTPError(http.StatusBadRequest, strings.Join(messages, "; "))
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
