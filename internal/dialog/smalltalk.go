package dialog

import "strings"

type smallTalkRule struct {
	match func(txt string) bool
	reply func(name string) string
}

// SmallTalk 是有序的寒暄规则集，在知识库未命中时使用。
type SmallTalk struct {
	rules []smallTalkRule
}

func containsAny(txt string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(txt, w) {
			return true
		}
	}
	return false
}

func static(s string) func(string) string {
	return func(string) string { return s }
}

// NewSmallTalk 返回内置规则。匹配是子串匹配，"this" 里的 "hi" 也会触发问候。
func NewSmallTalk() *SmallTalk {
	return &SmallTalk{rules: []smallTalkRule{
		{
			match: func(txt string) bool { return containsAny(txt, "hello", "hi", "hey") },
			reply: func(name string) string {
				if name != "" {
					return "Hey " + name + "! How can I help today?"
				}
				return "Hey! How can I help today?"
			},
		},
		{
			match: func(txt string) bool { return strings.Contains(txt, "thank") },
			reply: static("You're welcome!"),
		},
		{
			match: func(txt string) bool { return containsAny(txt, "bye", "goodbye", "see you") },
			reply: static("Bye! Have a great day 👋"),
		},
		{
			match: func(txt string) bool { return containsAny(txt, "help", "what can you do") },
			reply: static("I can answer questions from my small knowledge base. Try asking about 'project', 'how it works', or 'tech stack'."),
		},
	}}
}

// Respond 返回第一条命中规则的回复；都不命中时返回 ("", false)。
func (s *SmallTalk) Respond(text, name string) (string, bool) {
	txt := strings.ToLower(strings.TrimSpace(text))
	for _, r := range s.rules {
		if r.match(txt) {
			return r.reply(name), true
		}
	}
	return "", false
}
