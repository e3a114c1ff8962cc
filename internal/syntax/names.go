package syntax

import "strings"

// ArgKinds lists which argument forms a built-in accepts.
type ArgKinds struct {
	None   bool
	Number bool
	Color  bool
}

var builtinInstructions = map[string]ArgKinds{
	"schritt":      {None: true, Number: true},
	"linksdrehen":  {None: true},
	"rechtsdrehen": {None: true},
	"hinlegen":     {None: true, Number: true, Color: true},
	"aufheben":     {None: true, Number: true},
	"markesetzen":  {None: true, Color: true},
	"markelöschen": {None: true},
	"ton":          {None: true},
	"warten":       {None: true, Number: true},
}

var builtinConditions = map[string]ArgKinds{
	"istwand":        {None: true},
	"nichtistwand":   {None: true},
	"istziegel":      {None: true, Number: true, Color: true},
	"nichtistziegel": {None: true, Number: true, Color: true},
	"istmarke":       {None: true, Color: true},
	"nichtistmarke":  {None: true, Color: true},
	"istnorden":      {None: true},
	"istosten":       {None: true},
	"istsüden":       {None: true},
	"istwesten":      {None: true},
	"istvoll":        {None: true},
	"nichtistvoll":   {None: true},
	"istleer":        {None: true},
	"nichtistleer":   {None: true},
	"hatziegel":      {None: true, Number: true},
}

var asciiSpellings = strings.NewReplacer("oe", "ö", "ue", "ü")

// Canonical folds an identifier to the form used for lookups: lower case,
// with the ASCII spellings of built-ins mapped to their umlaut forms.
func Canonical(name string) string {
	lower := strings.ToLower(name)
	if _, ok := builtinInstructions[lower]; ok {
		return lower
	}
	if _, ok := builtinConditions[lower]; ok {
		return lower
	}
	folded := asciiSpellings.Replace(lower)
	if _, ok := builtinInstructions[folded]; ok {
		return folded
	}
	if _, ok := builtinConditions[folded]; ok {
		return folded
	}
	return lower
}

// BuiltinInstruction reports the argument forms of a built-in instruction.
func BuiltinInstruction(name string) (ArgKinds, bool) {
	a, ok := builtinInstructions[Canonical(name)]
	return a, ok
}

// BuiltinCondition reports the argument forms of a built-in condition.
func BuiltinCondition(name string) (ArgKinds, bool) {
	a, ok := builtinConditions[Canonical(name)]
	return a, ok
}
