package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModifiers(t *testing.T) {
	m := NewModifiers(map[string]string{
		"Alice@Example.edu": "You love cats.",
		"bob@example.edu":   "   ",
	})

	assert.Equal(t, "BONUS RULE:\n\nYou love cats.", m.Modifier("alice@example.edu"))
	assert.Equal(t, "", m.Modifier("bob@example.edu"), "空规则不登记")
	assert.Equal(t, "", m.Modifier("carol@example.edu"))

	assert.Equal(t, "base\n\nBONUS RULE:\n\nYou love cats.", m.Apply("base", "ALICE@example.edu"))
	assert.Equal(t, "base", m.Apply("base", "carol@example.edu"))

	var nilModifiers *Modifiers
	assert.Equal(t, "", nilModifiers.Modifier("alice@example.edu"))
}

func TestScenarioPrompt(t *testing.T) {
	assert.Equal(t, genericScenarioPrompt, ScenarioPrompt("", ""))
	assert.Equal(t, genericScenarioPrompt, ScenarioPrompt("  ", "\t"))

	topicOnly := ScenarioPrompt("", "credit approval")
	assert.Contains(t, topicOnly, genericScenarioPrompt)
	assert.Contains(t, topicOnly, "The scenario should be related to credit approval.")

	nurse := ScenarioPrompt("nurse", "")
	assert.Contains(t, nurse, "designed around the nurse profession")
	assert.Contains(t, nurse, "take on the role of nurse")
	assert.NotContains(t, nurse, "related to")

	both := ScenarioPrompt("AI Engineer", "facial recognition")
	assert.Contains(t, both, "AI Engineer profession")
	assert.Contains(t, both, "The scenario should be related to facial recognition.")
}
