package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names are an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names. Templates use named placeholders
// ({context}, {question}, ...) filled by the caller with strings.Replacer.
const (
	// PromptVisionDescribe asks for a structured description of a page image.
	// No placeholders.
	PromptVisionDescribe = "vision_describe"

	// PromptFusion merges extracted text with a vision description.
	// Placeholders: {extracted}, {description}.
	PromptFusion = "fusion"

	// PromptRAGAnswer answers a question from retrieved context.
	// Placeholders: {context}, {question}.
	PromptRAGAnswer = "rag_answer"

	// PromptEvalStatements splits an answer into atomic statements.
	// Placeholders: {question}, {answer}.
	PromptEvalStatements = "eval_statements"

	// PromptEvalFaithfulness judges each statement against the context.
	// Placeholders: {context}, {statements}.
	PromptEvalFaithfulness = "eval_faithfulness"

	// PromptEvalQuestions regenerates questions an answer would respond to.
	// Placeholders: {answer}, {count}.
	PromptEvalQuestions = "eval_questions"

	// PromptEvalContextVerdict judges whether one context was useful.
	// Placeholders: {question}, {reference}, {context}.
	PromptEvalContextVerdict = "eval_context_verdict"

	// PromptEvalRecall attributes reference sentences to the context.
	// Placeholders: {context}, {reference}.
	PromptEvalRecall = "eval_recall"
)
