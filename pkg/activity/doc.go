// Package activity defines the presence payload published with SET_ACTIVITY.
//
// An Activity carries optional buttons or optional secrets, never both.
// The Extras field models that choice: assign Buttons, Secrets or leave it
// nil.
//
//	a, err := activity.NewBuilder().
//		Playing().
//		Details("Editing main.py").
//		State("Workspace: demo").
//		StartNow().
//		LargeImage("logo", "Railroad IDE").
//		AddButton("Website", "https://railroadide.dev").
//		Build()
package activity
