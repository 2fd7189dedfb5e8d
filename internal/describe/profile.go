package describe

import "strings"

// Kind is the broad category of the foreground application.
type Kind int

// Application kinds, most specific first when a title matches several.
const (
	KindGeneric Kind = iota
	KindSocial
	KindMail
	KindDocument
	KindCodeEditor
	KindBrowser
)

func (k Kind) String() string {
	switch k {
	case KindSocial:
		return "social"
	case KindMail:
		return "mail"
	case KindDocument:
		return "document"
	case KindCodeEditor:
		return "code editor"
	case KindBrowser:
		return "browser"
	case KindGeneric:
		return "generic"
	}
	return "generic"
}

var codeEditorTitles = []string{"visual studio code", "vscode", "sublime", "notepad++", "intellij", "pycharm", "vim"}

var kindKeywords = []struct {
	kind     Kind
	keywords []string
}{
	{KindSocial, []string{"facebook", "instagram", "twitter", "linkedin", "youtube"}},
	{KindMail, []string{"gmail", "outlook"}},
	{KindCodeEditor, codeEditorTitles},
	{KindDocument, []string{"word", "excel", "powerpoint", "pdf", "libreoffice", "document"}},
	{KindBrowser, []string{"chrome", "firefox", "edge", "safari", "opera", "brave"}},
}

// KindOf classifies a window title.
func KindOf(title string) Kind {
	lower := strings.ToLower(title)
	for _, k := range kindKeywords {
		for _, kw := range k.keywords {
			if strings.Contains(lower, kw) {
				return k.kind
			}
		}
	}
	return KindGeneric
}

// IsCodeEditor reports whether title belongs to a code editor, where OCR
// runs with a contrast boost and the code allow-list.
func IsCodeEditor(title string) bool {
	return KindOf(title) == KindCodeEditor
}

// Profile describes the controls commonly found in one application.
type Profile struct {
	// Name is the profile key, also used as the cache context.
	Name string

	// Titles are window title fragments selecting the profile. Empty means
	// Name itself.
	Titles []string

	// Actions maps an action phrase to the labels that trigger it.
	Actions map[string][]string
}

// profiles are checked in order against the lowercased window title.
var profiles = []Profile{
	{Name: "facebook", Actions: map[string][]string{
		"like post":    {"like", "curtir"},
		"comment":      {"comment", "comentar"},
		"share post":   {"share", "compartilhar"},
		"publish":      {"post", "publicar"},
		"open stories": {"stories", "story"},
	}},
	{Name: "instagram", Actions: map[string][]string{
		"like post":  {"like", "curtir", "♥"},
		"comment":    {"comment", "comentar"},
		"save post":  {"save", "salvar"},
		"open reels": {"reels", "reel"},
	}},
	{Name: "gmail", Actions: map[string][]string{
		"compose email": {"compose", "escrever"},
		"send email":    {"send", "enviar"},
		"attach file":   {"attach", "anexar"},
		"reply":         {"reply", "responder"},
		"forward":       {"forward", "encaminhar"},
	}},
	{Name: "outlook", Actions: map[string][]string{
		"new email":   {"new", "novo"},
		"send email":  {"send", "enviar"},
		"attach file": {"attach", "anexar"},
		"reply":       {"reply", "responder"},
	}},
	{Name: "word", Actions: map[string][]string{
		"save document":  {"save", "salvar"},
		"print document": {"print", "imprimir"},
		"insert":         {"insert", "inserir"},
	}},
	{Name: "code", Titles: codeEditorTitles, Actions: map[string][]string{
		"run code":      {"run", "debug", "executar"},
		"git operation": {"commit", "push", "git"},
	}},
	{Name: "chrome", Actions: map[string][]string{
		"go back":     {"back", "voltar"},
		"go forward":  {"forward", "avançar"},
		"reload page": {"reload", "refresh", "atualizar"},
		"new tab":     {"new tab", "nova guia"},
	}},
}

// GenericContext is the app context used when no profile matches.
const GenericContext = "generic"

// AppContext maps a window title to an application profile name. The name
// partitions cached OCR and descriptions per application.
func AppContext(title string) string {
	if p, ok := profileFor(title); ok {
		return p.Name
	}
	return GenericContext
}

func profileFor(title string) (Profile, bool) {
	lower := strings.ToLower(title)
	for _, p := range profiles {
		titles := p.Titles
		if len(titles) == 0 {
			titles = []string{p.Name}
		}
		for _, t := range titles {
			if strings.Contains(lower, t) {
				return p, true
			}
		}
	}
	return Profile{}, false
}

// Action returns the application-specific action a label triggers, or "".
// Longer phrases win so "new tab" beats "new".
func Action(title, text string) string {
	p, ok := profileFor(title)
	if !ok || text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	best, bestLen := "", 0
	for action, labels := range p.Actions {
		for _, label := range labels {
			if len(label) > bestLen && strings.Contains(lower, label) {
				best, bestLen = action, len(label)
			} else if len(label) == bestLen && strings.Contains(lower, label) && action < best {
				best = action
			}
		}
	}
	return best
}
