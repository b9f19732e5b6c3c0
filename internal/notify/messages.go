package notify

// Messages are the texts shown around one mutation.
type Messages struct {
	Pending string
	Success string
	Failure string
}

var (
	ProjectCreate       = Messages{"Creating project...", "Project created successfully", "Failed to create project"}
	ProjectUpdate       = Messages{"Updating project...", "Project updated successfully", "Failed to update project"}
	ProjectDelete       = Messages{"Deleting project...", "Project deleted successfully", "Failed to delete project"}
	ProjectAddMember    = Messages{"Adding member...", "Member added successfully", "Failed to add member"}
	ProjectRemoveMember = Messages{"Removing member...", "Member removed successfully", "Failed to remove member"}

	BugCreate  = Messages{"Creating bug report...", "Bug report created successfully", "Failed to create bug report"}
	BugUpdate  = Messages{"Updating bug...", "Bug updated successfully", "Failed to update bug"}
	BugDelete  = Messages{"Deleting bug...", "Bug deleted successfully", "Failed to delete bug"}
	BugAssign  = Messages{"Assigning bug...", "Bug assigned successfully", "Failed to assign bug"}
	BugComment = Messages{"Adding comment...", "Comment added successfully", "Failed to add comment"}

	ProfileUpdate = Messages{"Saving...", "Profile updated successfully", "Failed to update profile"}
)

const (
	MsgLoading      = "Loading..."
	MsgSaving       = "Saving..."
	MsgSuccess      = "Operation completed successfully"
	MsgError        = "Something went wrong. Please try again."
	MsgNetwork      = "Network error. Please check your connection."
	MsgUnauthorized = "You are not authorized to perform this action"
	MsgBusy         = "A request for this item is already in progress"
)
