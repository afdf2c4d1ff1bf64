package usecase

import (
	"fmt"
	"strings"

	"github.com/jhornung97/ETPApprover/internal/domain"
)

const signature = "Cheers,\nETPApprover Bot for the Webbadmin"

// supervisorMessage asks the supervisors to trigger the approval.
func supervisorMessage(sub domain.Submission, authorDisplay, adminHandle string) string {
	var b strings.Builder

	b.WriteString("Hi,\n")
	fmt.Fprintf(&b, "%s has submitted their thesis into publish and it is awaiting approval.\n\n", authorDisplay)
	fmt.Fprintf(&b, "**Title:** %s\n", sub.Title)
	fmt.Fprintf(&b, "**Author:** %s\n", sub.Author)
	fmt.Fprintf(&b, "**Type:** %s\n\n", sub.ThesisType)
	b.WriteString("Can this be uploaded to publish with open access rights?\n")
	b.WriteString("If this isn't possible, please contact the author directly to clarify.\n")
	fmt.Fprintf(&b, "Also, if some supervisors are missing from this notification, please inform @%s.\n\n", adminHandle)
	b.WriteString(signature)

	return b.String()
}

// authorMessage congratulates the author and asks for open access permission.
func authorMessage(sub domain.Submission, firstName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hi %s,\n\n", firstName)
	fmt.Fprintf(&b, "Your thesis **\"%s\"** has been submitted into publish. Congratulations on finishing it! :partyparrot:\n\n", sub.Title)
	b.WriteString("One quick question before it goes online: do you grant the working group permission to publish your thesis under **open access rights**? A short yes in this chat is enough.\n\n")
	b.WriteString(signature)

	return b.String()
}

// selfNote replaces the permission request when the author is the admin.
func selfNote(sub domain.Submission) string {
	return fmt.Sprintf("Note: You are the author of \"%s\" - permission request skipped.", sub.Title)
}
