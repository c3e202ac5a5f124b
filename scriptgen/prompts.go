package scriptgen

const systemPrompt = `You are a professional news anchor writing narration scripts ` +
	`for a daily news video. Write clear spoken prose, no stage directions, ` +
	`no markdown, no emojis. Respond only with the JSON object requested.`

const scriptPromptTemplate = `Write a narration script in %s for a daily news video dated %s.

Articles to cover, in order:
%s

Respond with a single JSON object:
{
  "title": "short episode title",
  "segments": [
    {"type": "intro", "content": "greeting and what today's episode covers"},
    {"type": "news", "content": "narration for article 1", "key_points": ["fact 1", "fact 2"]},
    {"type": "news", "content": "narration for article 2", "key_points": ["fact 1", "fact 2"]},
    {"type": "conclusion", "content": "wrap-up and sign-off"}
  ]
}

Rules:
- One "news" segment per article, in the order given above.
- Each news segment should take roughly 45 to 60 seconds to read aloud.
- key_points: 2 to 4 short factual takeaways per news segment.
- Neutral tone, no opinions, no calls to action beyond a standard sign-off.`
