package repository

// BuildExtractionPrompt builds the prompt that turns a pasted block of
// weekly stock recommendations into structured (recommender, stocks) items.
func BuildExtractionPrompt(rawText string) string {
	return `You are an expert at extracting stock recommendation data. Parse the
stock recommendation text below and extract, for every single entry, the
recommender's name and the stock names they mention.

Do not skip any entry.

Rules:
1. A line usually starts with an index number, then the recommender's name,
   then the recommendation content.
2. Extract the recommender name (the first word or phrase after the index;
   deduplicate semantically repeated names such as "NameA NameA likes X").
3. Extract every stock name mentioned, space separated. If a stock name is
   abbreviated, infer the full listed name from the reasoning around it.
4. If only a stock code is given, convert it to the listed stock name.
5. Ignore directional filler words ("bullish", "watching", "still holding").
6. Skip entries that mention no concrete stock.
7. Keep the recommender's original message with the index prefix removed.

Respond with JSON only, no markdown fences, in exactly this shape:
{"items": [{"name": "recommender", "stocks": "stock1 stock2", "original": "original message"}]}

Text to parse:
` + rawText
}
