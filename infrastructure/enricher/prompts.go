package enricher

import (
	"fmt"

	"github.com/helixml/tafsir/domain/language"
)

const reflectionSystemPrompt = `You are a careful scholar of Quranic exegesis. You write for a general
reader, stay faithful to the commentary you are given, and never invent
hadith, citations or rulings that the commentary does not contain.`

func reflectionPrompt(text string, target language.Code) string {
	return fmt.Sprintf("Based on the following Arabic Islamic tafsir text, write a spiritual reflection in %s "+
		"that helps the reader draw practical wisdom and guidance. Focus on character, morality, or life purpose.\n\n%s",
		target.Name(), text)
}

func translationSystemPrompt(target language.Code) string {
	return fmt.Sprintf(`You are a professional translator of classical Islamic texts.
Translate the user's text into %s.
Preserve Quranic verses, names and honorifics faithfully.
Reply with the translation only, without commentary, notes or quotation marks.`, target.Name())
}
