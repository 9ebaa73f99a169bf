package notify

import (
	"fmt"
	"strings"

	"github.com/jonathan/talent-pipeline/internal/types"
)

// OfferAssigned tells a recruiter that an offer now needs a JD from them.
func OfferAssigned(recruiter *types.User, offer *types.Offer) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", recruiter.Name)
	fmt.Fprintf(&b, "You have been assigned the offer %q", offer.JobTitle)
	if offer.CompanyName != "" {
		fmt.Fprintf(&b, " at %s", offer.CompanyName)
	}
	b.WriteString(".\n")
	fmt.Fprintf(&b, "Priority: %s\n", offer.Priority)
	if offer.DueDate != nil {
		fmt.Fprintf(&b, "Due: %s\n", offer.DueDate.Format("2006-01-02"))
	}
	if len(offer.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(offer.Skills, ", "))
	}
	b.WriteString("\nPlease create the job description for this offer.\n")

	return Message{
		To:      recruiter.Email,
		Subject: "New offer assigned: " + offer.JobTitle,
		Body:    b.String(),
	}
}

// JDInvite invites a candidate to apply through the JD's public link.
func JDInvite(candidate *types.Candidate, jd *types.JobDescription, link string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", candidate.Name)
	if jd.CompanyName != "" {
		fmt.Fprintf(&b, "%s is hiring and your profile looks like a match.\n\n", jd.CompanyName)
	} else {
		b.WriteString("We have an opening that looks like a match for your profile.\n\n")
	}
	if jd.JobSummary != "" {
		b.WriteString(jd.JobSummary + "\n\n")
	}
	fmt.Fprintf(&b, "Read the full description and apply here: %s\n", link)

	return Message{
		To:      candidate.Email,
		Subject: "You're invited to apply",
		Body:    b.String(),
	}
}
