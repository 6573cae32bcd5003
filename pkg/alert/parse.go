package alert

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"SafetyApp/internal/models"
	apperrors "SafetyApp/pkg/errors"
)

var validate = validator.New()

// Parse 解析一帧警报。非 JSON、缺少 userId 或 location 都视为解码失败
func Parse(raw []byte) (models.AlertMessage, error) {
	var msg models.AlertMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return models.AlertMessage{}, apperrors.Wrap(err, apperrors.CodeDecode, "malformed alert frame")
	}
	if err := validate.Struct(msg); err != nil {
		return models.AlertMessage{}, apperrors.Wrap(err, apperrors.CodeDecode, "incomplete alert frame")
	}
	return msg, nil
}
