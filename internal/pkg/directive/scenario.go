package directive

import (
	"fmt"
	"strings"
)

const genericScenarioPrompt = "Please generate a scenario for the ethics debate tournament."

const professionScenarioPrompt = `This year's competition is designed around the %[1]s profession.
The graduate students are assumed to take on the role of %[1]s when debating the scenario.
The scenario should be highly complex and thought-provoking, and should be able to be debated for a long time.
%[2]s
Please generate the scenario.
`

// ScenarioPrompt 构造开场场景请求，occupation 与 topic 均可为空
func ScenarioPrompt(occupation, topic string) string {
	occupation = strings.TrimSpace(occupation)
	topic = strings.TrimSpace(topic)

	topicLine := ""
	if topic != "" {
		topicLine = fmt.Sprintf("The scenario should be related to %s.", topic)
	}

	switch {
	case occupation == "" && topic == "":
		return genericScenarioPrompt
	case occupation == "":
		return genericScenarioPrompt + "\n" + topicLine
	default:
		return fmt.Sprintf(professionScenarioPrompt, occupation, topicLine)
	}
}
