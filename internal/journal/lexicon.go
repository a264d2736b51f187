package journal

// Fixed keyword lexicons for sentiment and theme tagging. Matching is
// word-exact over lowercased tokens, so "hopeless" never matches "hope".

var positiveWords = map[string]struct{}{
	"calm": {}, "grateful": {}, "gratitude": {}, "hopeful": {}, "hope": {},
	"better": {}, "relieved": {}, "relief": {}, "happy": {}, "happiness": {},
	"joy": {}, "proud": {}, "peaceful": {}, "peace": {}, "good": {},
	"love": {}, "loved": {}, "improving": {}, "progress": {}, "thankful": {},
	"stronger": {}, "rested": {}, "excited": {}, "confident": {},
}

var negativeWords = map[string]struct{}{
	"hopeless": {}, "stressed": {}, "stress": {}, "anxious": {}, "anxiety": {},
	"worried": {}, "worry": {}, "scared": {}, "afraid": {}, "sad": {},
	"angry": {}, "anger": {}, "tired": {}, "exhausted": {}, "alone": {},
	"lonely": {}, "worthless": {}, "awful": {}, "terrible": {}, "bad": {},
	"hate": {}, "overwhelmed": {}, "hurt": {}, "pain": {}, "crying": {},
	"miserable": {}, "useless": {}, "panic": {}, "guilty": {},
}

// themeLexicons maps a theme name to the words that signal it. A theme is
// tagged when any user utterance contains any of its words.
var themeLexicons = map[string][]string{
	"work": {
		"work", "job", "boss", "career", "deadline", "deadlines", "office",
		"coworker", "coworkers", "colleague", "meeting", "interview", "fired",
		"promotion", "workload",
	},
	"relationships": {
		"partner", "friend", "friends", "family", "relationship", "marriage",
		"wife", "husband", "boyfriend", "girlfriend", "mother", "father",
		"mom", "dad", "breakup", "divorce", "argument",
	},
	"health": {
		"health", "sick", "illness", "doctor", "hospital", "pain", "body",
		"headache", "symptoms", "diagnosis", "medication",
	},
	"finances": {
		"money", "debt", "rent", "bills", "finances", "financial", "afford",
		"budget", "savings", "paycheck", "broke",
	},
	"future": {
		"future", "tomorrow", "plans", "plan", "goal", "goals", "someday",
		"direction", "purpose", "uncertain", "uncertainty",
	},
	"self-esteem": {
		"worthless", "failure", "confidence", "inadequate", "stupid", "ugly",
		"unlovable", "useless", "ashamed", "embarrassed",
	},
	"sleep": {
		"sleep", "sleeping", "insomnia", "tired", "exhausted", "nightmare",
		"nightmares", "awake", "rest", "restless",
	},
}
