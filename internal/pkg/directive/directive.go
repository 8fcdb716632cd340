package directive

import "fmt"

// ID 指令标识，封闭枚举
type ID int

const (
	UserClarification     ID = 1
	ScenarioClarification ID = 2
	Rebuttal              ID = 3
	InjectionRedirect     ID = 4
	ScenarioAuthor        ID = 5
	Conductor             ID = 6
	Grader                ID = 7
	Feedback              ID = 8
)

// Default 路由不确定时使用的指令
const Default = Rebuttal

var names = map[ID]string{
	UserClarification:     "user-clarification",
	ScenarioClarification: "scenario-clarification",
	Rebuttal:              "rebuttal",
	InjectionRedirect:     "injection-redirect",
	ScenarioAuthor:        "scenario-author",
	Conductor:             "conductor",
	Grader:                "grader",
	Feedback:              "feedback",
}

// Routable 可由路由器选择的指令，按 ID 升序
func Routable() []ID {
	return []ID{UserClarification, ScenarioClarification, Rebuttal, InjectionRedirect}
}

// IsRoutable 判断 ID 是否属于可路由集合
func (id ID) IsRoutable() bool {
	return id >= UserClarification && id <= InjectionRedirect
}

// Valid 判断 ID 是否为已知指令
func (id ID) Valid() bool {
	_, ok := names[id]
	return ok
}

// Name 指令名称
func (id ID) Name() string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("directive-%d", int(id))
}

func (id ID) String() string {
	return id.Name()
}

// Directive 指令定义
type Directive struct {
	ID           ID     `yaml:"id" json:"id"`
	Name         string `yaml:"name" json:"name"`
	Version      string `yaml:"version" json:"version"`
	Description  string `yaml:"description" json:"description"`
	RoutingHint  string `yaml:"routingHint" json:"routing_hint,omitempty"`
	SystemPrompt string `yaml:"systemPrompt" json:"system_prompt"`

	// 来源文件
	Path string `yaml:"-" json:"path,omitempty"`
}
