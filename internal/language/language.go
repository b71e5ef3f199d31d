package language

import "strings"

// Language represents a language the speech model can be asked to transcribe
type Language struct {
	Code       string // ISO 639-1 code (e.g., "en", "es", "zh")
	Name       string // English name, used in prompts and config (e.g., "Spanish")
	NativeName string // Native name (e.g., "Español", "中文")
}

// Detected is the phrase used in prompts when no language was selected.
const Detected = "the detected language"

// Default is the language selected when none is configured.
const Default = "English"

// Featured are the languages offered first in the picker.
var Featured = []string{"English", "Spanish", "French", "German", "Japanese", "Arabic"}

// languages is the master list of supported languages
var languages = []Language{
	{Code: "af", Name: "Afrikaans", NativeName: "Afrikaans"},
	{Code: "ar", Name: "Arabic", NativeName: "العربية"},
	{Code: "hy", Name: "Armenian", NativeName: "Հայերեն"},
	{Code: "az", Name: "Azerbaijani", NativeName: "Azərbaycan"},
	{Code: "be", Name: "Belarusian", NativeName: "Беларуская"},
	{Code: "bs", Name: "Bosnian", NativeName: "Bosanski"},
	{Code: "bg", Name: "Bulgarian", NativeName: "Български"},
	{Code: "ca", Name: "Catalan", NativeName: "Català"},
	{Code: "zh", Name: "Chinese", NativeName: "中文"},
	{Code: "hr", Name: "Croatian", NativeName: "Hrvatski"},
	{Code: "cs", Name: "Czech", NativeName: "Čeština"},
	{Code: "da", Name: "Danish", NativeName: "Dansk"},
	{Code: "nl", Name: "Dutch", NativeName: "Nederlands"},
	{Code: "en", Name: "English", NativeName: "English"},
	{Code: "et", Name: "Estonian", NativeName: "Eesti"},
	{Code: "fi", Name: "Finnish", NativeName: "Suomi"},
	{Code: "fr", Name: "French", NativeName: "Français"},
	{Code: "gl", Name: "Galician", NativeName: "Galego"},
	{Code: "de", Name: "German", NativeName: "Deutsch"},
	{Code: "el", Name: "Greek", NativeName: "Ελληνικά"},
	{Code: "he", Name: "Hebrew", NativeName: "עברית"},
	{Code: "hi", Name: "Hindi", NativeName: "हिन्दी"},
	{Code: "hu", Name: "Hungarian", NativeName: "Magyar"},
	{Code: "is", Name: "Icelandic", NativeName: "Íslenska"},
	{Code: "id", Name: "Indonesian", NativeName: "Bahasa Indonesia"},
	{Code: "it", Name: "Italian", NativeName: "Italiano"},
	{Code: "ja", Name: "Japanese", NativeName: "日本語"},
	{Code: "kn", Name: "Kannada", NativeName: "ಕನ್ನಡ"},
	{Code: "kk", Name: "Kazakh", NativeName: "Қазақ"},
	{Code: "ko", Name: "Korean", NativeName: "한국어"},
	{Code: "lv", Name: "Latvian", NativeName: "Latviešu"},
	{Code: "lt", Name: "Lithuanian", NativeName: "Lietuvių"},
	{Code: "mk", Name: "Macedonian", NativeName: "Македонски"},
	{Code: "ms", Name: "Malay", NativeName: "Bahasa Melayu"},
	{Code: "mr", Name: "Marathi", NativeName: "मराठी"},
	{Code: "mi", Name: "Maori", NativeName: "Māori"},
	{Code: "ne", Name: "Nepali", NativeName: "नेपाली"},
	{Code: "no", Name: "Norwegian", NativeName: "Norsk"},
	{Code: "fa", Name: "Persian", NativeName: "فارسی"},
	{Code: "pl", Name: "Polish", NativeName: "Polski"},
	{Code: "pt", Name: "Portuguese", NativeName: "Português"},
	{Code: "ro", Name: "Romanian", NativeName: "Română"},
	{Code: "ru", Name: "Russian", NativeName: "Русский"},
	{Code: "sr", Name: "Serbian", NativeName: "Српски"},
	{Code: "sk", Name: "Slovak", NativeName: "Slovenčina"},
	{Code: "sl", Name: "Slovenian", NativeName: "Slovenščina"},
	{Code: "es", Name: "Spanish", NativeName: "Español"},
	{Code: "sw", Name: "Swahili", NativeName: "Kiswahili"},
	{Code: "sv", Name: "Swedish", NativeName: "Svenska"},
	{Code: "tl", Name: "Tagalog", NativeName: "Tagalog"},
	{Code: "ta", Name: "Tamil", NativeName: "தமிழ்"},
	{Code: "th", Name: "Thai", NativeName: "ไทย"},
	{Code: "tr", Name: "Turkish", NativeName: "Türkçe"},
	{Code: "uk", Name: "Ukrainian", NativeName: "Українська"},
	{Code: "ur", Name: "Urdu", NativeName: "اردو"},
	{Code: "vi", Name: "Vietnamese", NativeName: "Tiếng Việt"},
	{Code: "cy", Name: "Welsh", NativeName: "Cymraeg"},
}

var (
	codeIndex map[string]Language
	nameIndex map[string]Language
)

func init() {
	codeIndex = make(map[string]Language, len(languages))
	nameIndex = make(map[string]Language, len(languages))
	for _, lang := range languages {
		codeIndex[lang.Code] = lang
		nameIndex[strings.ToLower(lang.Name)] = lang
	}
}

// FromCode returns the Language for the given ISO code.
func FromCode(code string) (Language, bool) {
	lang, ok := codeIndex[strings.ToLower(code)]
	return lang, ok
}

// FromName looks up a language by English name, case-insensitively.
// ISO codes are accepted as well.
func FromName(name string) (Language, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if lang, ok := nameIndex[key]; ok {
		return lang, true
	}
	if lang, ok := codeIndex[key]; ok {
		return lang, true
	}
	return Language{}, false
}

// IsValid reports whether name is a known language name or code.
func IsValid(name string) bool {
	_, ok := FromName(name)
	return ok
}

// List returns all supported languages
func List() []Language {
	result := make([]Language, len(languages))
	copy(result, languages)
	return result
}

// Names returns the English names of all supported languages
func Names() []string {
	names := make([]string, len(languages))
	for i, lang := range languages {
		names[i] = lang.Name
	}
	return names
}

// Normalize maps names to their canonical spelling and drops duplicates and
// unknown entries, keeping the original order.
func Normalize(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		lang, ok := FromName(n)
		if !ok || seen[lang.Name] {
			continue
		}
		seen[lang.Name] = true
		out = append(out, lang.Name)
	}
	return out
}

// Join renders names as the human readable list substituted into prompts.
func Join(names []string) string {
	var parts []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			parts = append(parts, n)
		}
	}
	if len(parts) == 0 {
		return Detected
	}
	return strings.Join(parts, ", ")
}
