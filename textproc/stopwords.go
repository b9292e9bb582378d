package textproc

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "is": true,
	"are": true, "was": true, "were": true, "be": true, "been": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"it": true, "this": true, "that": true, "as": true, "from": true,

	"的": true, "了": true, "和": true, "是": true, "在": true, "我": true,
	"有": true, "这": true, "那": true, "你": true, "他": true, "她": true,
	"它": true, "我们": true, "你们": true, "他们": true, "这个": true,
	"那个": true, "要": true, "也": true, "都": true, "会": true,
	"可以": true, "可能": true, "就是": true, "这样": true, "这些": true,
	"那些": true, "一些": true, "一点": true, "一种": true, "一样": true,
	"一般": true, "一定": true, "非常": true, "很多": true, "什么": true,
	"为什么": true, "怎么": true, "如何": true, "因为": true, "所以": true,
	"但是": true, "虽然": true, "如果": true, "然后": true, "而且": true,
	"或者": true, "还是": true, "不是": true, "没有": true, "不要": true,
	"不能": true, "需要": true, "应该": true, "必须": true, "只是": true,
	"真是": true,
}

func IsStopWord(word string) bool {
	return stopWords[word]
}
