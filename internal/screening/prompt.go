package screening

import (
	"strings"

	"jobboard-backend/internal/applications"
	"jobboard-backend/internal/jobs"
)

// BuildPrompt renders the evaluation request for one application.
func BuildPrompt(job jobs.Job, app applications.Application, resumeText string) string {
	var b strings.Builder
	b.WriteString("You are an expert AI recruiter. Analyze the candidate's application against the job description.\n\n")

	b.WriteString("**Job Description:**\n")
	b.WriteString("- Title: " + job.Title + "\n")
	b.WriteString("- Required Skills: " + strings.Join(job.RequiredSkills, ", ") + "\n")
	b.WriteString("- Required Certifications: " + strings.Join(job.RequiredCertifications, ", ") + "\n\n")

	b.WriteString("**Candidate's Application:**\n")
	b.WriteString("- Cover Letter: " + app.CoverLetter + "\n")
	b.WriteString("- Claimed Skills: " + strings.Join(app.Skills, ", ") + "\n")
	b.WriteString("- Claimed Certifications: " + strings.Join(app.Certifications, ", ") + "\n")
	b.WriteString("- Parsed Resume Text: " + resumeText + "\n\n")

	b.WriteString("**Your Task:**\n")
	b.WriteString("Return your decision *only* in the following JSON format:\n")
	b.WriteString("{\n")
	b.WriteString(`  "decision": "ACCEPTED" | "REJECTED" | "PENDING",` + "\n")
	b.WriteString(`  "reasoning": "A brief, one-sentence explanation for your decision."` + "\n")
	b.WriteString("}\n")
	return b.String()
}
