package notify

import (
	"fmt"
	"strings"

	"jobboard-backend/internal/applications"
	"jobboard-backend/internal/jobs"
	"jobboard-backend/internal/users"
)

const missingPhone = "the phone number on your profile"

// BuildStatusEmail renders the candidate message for a decision. ok is false
// for statuses that send nothing.
func BuildStatusEmail(candidate users.User, job jobs.Job, status applications.Status) (subject, body string, ok bool) {
	switch status {
	case applications.StatusRejected:
		subject = fmt.Sprintf("Update on your application for %s at %s", job.Title, job.Company)
		body = fmt.Sprintf("Dear %s,\n\n", candidate.Name) +
			fmt.Sprintf("Thank you for giving us the opportunity to review your application for the %s position.\n\n", job.Title) +
			"We appreciate the time you took to apply and share your credentials. After a careful review of your " +
			"skills and experience against our current requirements, we have decided not to move forward with your " +
			"application at this time.\n\n" +
			"We received a high volume of applications for this role. We will keep your resume in our database and " +
			"contact you if a future opening matches your specific skill set.\n\n" +
			"We wish you the best of luck in your job search.\n\n" +
			fmt.Sprintf("Sincerely,\n\nThe Recruitment Team at %s", job.Company)
		return subject, body, true
	case applications.StatusAccepted:
		phone := strings.TrimSpace(candidate.Phone)
		if phone == "" {
			phone = missingPhone
		}
		subject = fmt.Sprintf("Good News! You've moved to the next stage for %s", job.Title)
		body = fmt.Sprintf("Hi %s,\n\n", candidate.Name) +
			fmt.Sprintf("Great news! We have reviewed your application for the %s position, and we are impressed with your experience.\n\n", job.Title) +
			"We would like to move you to the next stage of our hiring process.\n\n" +
			"What happens next? A member of our team will review your profile personally and reach out within the next " +
			"2-3 business days to schedule a brief phone interview or site visit.\n\n" +
			fmt.Sprintf("In the meantime, please ensure your phone number %s is up to date.\n\n", phone) +
			fmt.Sprintf("Thank you for your interest in %s. We look forward to speaking with you soon.\n\n", job.Company) +
			"Best regards,\n\nThe Recruitment Team"
		return subject, body, true
	default:
		return "", "", false
	}
}
