package utils

// Server-side strings only. Page copy is rendered from templates in English;
// these cover the few messages the server produces on its own.

const DefaultLocale = "en"

// localeByLanguage maps the actor's language names to locale codes.
var localeByLanguage = map[string]string{
	"english": "en",
	"hindi":   "hi",
	"tamil":   "ta",
	"telugu":  "te",
	"kannada": "kn",
	"marathi": "mr",
	"spanish": "es",
	"french":  "fr",
}

// SupportedLocales lists the locale codes of every portal language.
var SupportedLocales = []string{"en", "hi", "ta", "te", "kn", "mr", "es", "fr"}

// LocaleFor returns the locale code for a portal language name, or "" when unknown.
func LocaleFor(language string) string {
	return localeByLanguage[language]
}

// LanguageFor is the inverse of LocaleFor.
func LanguageFor(locale string) string {
	for name, code := range localeByLanguage {
		if code == locale {
			return name
		}
	}
	return ""
}

var translations = map[string]map[string]string{
	"en": {
		"health.ok":      "ok",
		"crisis.banner":  "If you are in crisis, call or text 988 right away.",
		"login.required": "Please log in to continue.",
		"nav.community":  "Community",
	},
	"hi": {
		"health.ok":     "ठीक है",
		"crisis.banner": "यदि आप संकट में हैं, तो तुरंत 988 पर कॉल या टेक्स्ट करें।",
		"nav.community": "समुदाय",
	},
	"es": {
		"health.ok":      "bien",
		"crisis.banner":  "Si estás en crisis, llama o envía un mensaje al 988 de inmediato.",
		"login.required": "Inicia sesión para continuar.",
		"nav.community":  "Comunidad",
	},
	"fr": {
		"health.ok":      "ok",
		"crisis.banner":  "Si vous êtes en crise, appelez ou écrivez au 988 immédiatement.",
		"login.required": "Veuillez vous connecter pour continuer.",
		"nav.community":  "Communauté",
	},
}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := translations[DefaultLocale][key]; ok {
		return v
	}
	return key
}
