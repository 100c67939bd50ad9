package postprocess

import "github.com/vasic-labs/doctranslate/pkg/script"

// ScriptNormalizationRule rewrites translated text into a specific Serbian
// script (Cyrillic or Latin) regardless of which one the LLM produced. It is
// opt-in: a job only gets this rule when it names a TargetScript, since most
// target languages have no dual-script concern at all.
type ScriptNormalizationRule struct {
	converter *script.Converter
	target    script.ScriptType
}

// NewScriptNormalizationRule builds a rule that converts text to target.
func NewScriptNormalizationRule(target script.ScriptType) ScriptNormalizationRule {
	return ScriptNormalizationRule{converter: script.NewConverter(), target: target}
}

func (r ScriptNormalizationRule) Apply(text string) string {
	return r.converter.Convert(text, r.target)
}

func (r ScriptNormalizationRule) Description() string {
	return "Normalize script to " + string(r.target)
}
