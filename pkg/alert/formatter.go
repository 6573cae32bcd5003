package alert

import (
	"SafetyApp/internal/models"
	"SafetyApp/pkg/i18n"
)

// Formatter 把警报渲染为通知标题与正文
type Formatter struct {
	tr   *i18n.I18nSupport
	lang string
}

// NewFormatter lang 为空时使用 tr 的默认语言
func NewFormatter(tr *i18n.I18nSupport, lang string) *Formatter {
	return &Formatter{tr: tr, lang: lang}
}

// Format 渲染警报通知
func (f *Formatter) Format(msg models.AlertMessage) (title, message string) {
	loc := msg.Location.Location()
	data := map[string]interface{}{
		"UserID": string(msg.UserID),
		"Lat":    loc.Lat,
		"Lng":    loc.Lng,
	}
	return f.t(i18n.MsgAlertTitle, nil), f.t(i18n.MsgAlertMessage, data)
}

// FakeCall 伪来电通知
func (f *Formatter) FakeCall() (title, message string) {
	return f.t(i18n.MsgFakeCallTitle, nil), f.t(i18n.MsgFakeCallMessage, nil)
}

func (f *Formatter) t(key string, data map[string]interface{}) string {
	if f.lang == "" {
		return f.tr.TWithDefaultLang(key, data)
	}
	return f.tr.T(f.lang, key, data)
}
