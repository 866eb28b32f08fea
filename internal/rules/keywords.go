package rules

// Keywords holds the ordered keyword lists the engine matches against.
// Order matters: the first matching keyword of a list is the one reported.
type Keywords struct {
	Study               []string `mapstructure:"study" yaml:"study"`
	Distraction         []string `mapstructure:"distraction" yaml:"distraction"`
	Search              []string `mapstructure:"search" yaml:"search"`
	EducationalChannels []string `mapstructure:"educational_channels" yaml:"educational_channels"`
	ExplicitLearning    []string `mapstructure:"explicit_learning" yaml:"explicit_learning"`
}

// DefaultKeywords returns the built-in keyword lists.
func DefaultKeywords() Keywords {
	return Keywords{
		Study: []string{
			"code", "terminal", "docs", "pdf", "canvas", "notion", "obsidian",
			"cursor", "xcode", "intellij", "pycharm", "calendar", "electron",
			"student", "profile", "portal", "login", "sso", "auth", "dashboard", "blackboard",
			"chatgpt", "claude", "gemini", "copilot", "perplexity", "openai",
			"math", "algebra", "calculus", "geometry", "statistics", "physics", "chemistry", "biology",
			"history", "economics", "programming", "python", "javascript", "java", "c++",
			"tutorial", "course", "lesson", "lecture", "learn", "education", "study",
		},
		Distraction: []string{
			"youtube", "twitter", "x.com", "twitter.com", " / x", "reddit", "facebook",
			"instagram", "netflix", "game", "tiktok", "twitch", "hulu", "disney", "prime video",
		},
		Search: []string{
			"search", "results", "query", "find", "looking for", "google search", "bing search",
		},
		EducationalChannels: []string{
			"crash course", "ted-ed", "veritasium", "3blue1brown", "khan academy",
			"mit opencourseware", "stanford", "harvard", "coursera", "udemy",
		},
		ExplicitLearning: []string{
			"tutorial", "course", "lecture", "lesson", "how to build", "how to make",
			"learn", "education", "teaching", "instructor", "professor",
			"onnx", "machine learning", "deep learning", "neural network", "ai model",
			"algorithm", "data science", "research", "paper", "documentation",
			"ai", "ml", "engine", "framework", "library", "api", "sdk",
		},
	}
}

// Merge returns k with every empty list replaced by the matching list of fallback.
func (k Keywords) Merge(fallback Keywords) Keywords {
	pick := func(a, b []string) []string {
		if len(a) == 0 {
			return b
		}
		return a
	}
	return Keywords{
		Study:               pick(k.Study, fallback.Study),
		Distraction:         pick(k.Distraction, fallback.Distraction),
		Search:              pick(k.Search, fallback.Search),
		EducationalChannels: pick(k.EducationalChannels, fallback.EducationalChannels),
		ExplicitLearning:    pick(k.ExplicitLearning, fallback.ExplicitLearning),
	}
}
