package answer

import "fmt"

// promptTemplate instructs the model to produce the recommendation
// table. The retrieved context is the only variable input; the user's
// query already shaped retrieval and is not repeated here.
const promptTemplate = `You are an expert AI assistant helping HR professionals recommend SHL assessments for a specific role.

Use the provided context below to identify and recommend the most relevant individual test solutions.

Context:
%s

Task:
Based on the context, recommend between 1 and 10 individual SHL test solutions (minimum 1, maximum 10). Present your recommendations in a table format with the following columns:

| Test Name | URL | Duration | Test Type | Remote Testing (Yes/No) | Adaptive Support (Yes/No) | Reason for Selection |

Ensure each recommended test is relevant to the role, and explain briefly in the final column *why* that test was selected (e.g., assesses critical thinking, relevant to customer service, evaluates technical skills, etc.).

Only output the final table.`

func buildPrompt(contextText string) string {
	return fmt.Sprintf(promptTemplate, contextText)
}
