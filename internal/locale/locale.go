// Package locale resolves the per-request view state: which catalog,
// which date formats and which font face a report uses.
package locale

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Face is the type face family installed for a whole document.
type Face string

const (
	FaceLatin   Face = "latin"
	FaceBengali Face = "bengali"
	FaceArabic  Face = "arabic"
)

// Supported app locale codes in matcher priority order. "cn" is the
// app's code for Chinese.
var Supported = []string{"cn", "en", "bn", "fa"}

const Default = "cn"

var tags = map[string]language.Tag{
	"cn": language.Chinese,
	"en": language.English,
	"bn": language.Bengali,
	"fa": language.Persian,
}

var matcher = language.NewMatcher([]language.Tag{
	language.Chinese, language.English, language.Bengali, language.Persian,
})

type formats struct {
	date string
	time string
}

var layouts = map[string]formats{
	"cn": {date: "2006/1/2", time: "15:04:05"},
	"en": {date: "1/2/2006", time: "3:04:05 PM"},
	"bn": {date: "2/1/2006", time: "3:04:05 PM"},
	"fa": {date: "2006/1/2", time: "15:04:05"},
}

// ViewState is the view configuration of one request or CLI run.
type ViewState struct {
	Locale   string
	Location *time.Location
}

// New builds a ViewState for a supported code, falling back to Default.
func New(code string, loc *time.Location) ViewState {
	code = strings.ToLower(strings.TrimSpace(code))
	if _, ok := tags[code]; !ok {
		code = Default
	}
	if loc == nil {
		loc = time.Local
	}
	return ViewState{Locale: code, Location: loc}
}

// Resolve picks the locale from an explicit app code first, then from an
// Accept-Language header, then fallback.
func Resolve(param, acceptLanguage, fallback string, loc *time.Location) ViewState {
	if code := strings.ToLower(strings.TrimSpace(param)); code != "" {
		if _, ok := tags[code]; ok {
			return New(code, loc)
		}
	}
	if acceptLanguage != "" {
		if prefs, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(prefs) > 0 {
			_, idx, conf := matcher.Match(prefs...)
			if conf != language.No {
				return New(Supported[idx], loc)
			}
		}
	}
	return New(fallback, loc)
}

// IsSupported reports whether code is one of the app locale codes.
func IsSupported(code string) bool {
	_, ok := tags[code]
	return ok
}

func (v ViewState) Tag() language.Tag {
	if t, ok := tags[v.Locale]; ok {
		return t
	}
	return tags[Default]
}

// Face picks the document face from the locale's script.
func (v ViewState) Face() Face {
	script, _ := v.Tag().Script()
	switch script.String() {
	case "Beng":
		return FaceBengali
	case "Arab":
		return FaceArabic
	default:
		return FaceLatin
	}
}

func (v ViewState) in(t time.Time) time.Time {
	if v.Location == nil {
		return t
	}
	return t.In(v.Location)
}

func (v ViewState) layout() formats {
	if f, ok := layouts[v.Locale]; ok {
		return f
	}
	return layouts[Default]
}

func (v ViewState) FormatDate(t time.Time) string {
	return v.in(t).Format(v.layout().date)
}

func (v ViewState) FormatTime(t time.Time) string {
	return v.in(t).Format(v.layout().time)
}

func (v ViewState) FormatDateTime(t time.Time) string {
	return v.FormatDate(t) + " " + v.FormatTime(t)
}
