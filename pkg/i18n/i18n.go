package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// 消息 ID
const (
	MsgAlertTitle      = "alert.title"
	MsgAlertMessage    = "alert.message"
	MsgFakeCallTitle   = "fakecall.title"
	MsgFakeCallMessage = "fakecall.message"
)

// I18nSupport 国际化支持结构体
type I18nSupport struct {
	bundle      *i18n.Bundle
	defaultLang string
}

// NewI18nSupport 初始化国际化支持，加载内嵌的全部语言文件
func NewI18nSupport(defaultLang string) (*I18nSupport, error) {
	tag, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("invalid default language %q: %w", defaultLang, err)
	}

	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	files, err := fs.Glob(localeFS, "locales/*.json")
	if err != nil {
		return nil, err
	}
	for _, name := range files {
		data, err := localeFS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(data, path.Base(name)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	}

	return &I18nSupport{
		bundle:      bundle,
		defaultLang: tag.String(),
	}, nil
}

// T 获取翻译文本，找不到时返回键名
func (i *I18nSupport) T(languageTag, key string, templateData map[string]interface{}) string {
	localizer := i18n.NewLocalizer(i.bundle, languageTag, i.defaultLang)

	translation, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: templateData,
	})
	if err != nil {
		return key
	}

	return translation
}

// TWithDefaultLang 使用默认语言获取翻译文本
func (i *I18nSupport) TWithDefaultLang(key string, templateData map[string]interface{}) string {
	return i.T(i.defaultLang, key, templateData)
}
