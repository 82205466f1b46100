// Package signup implements the multi-step account creation workflow.
//
// A Flow owns one Draft and walks it through five steps: account, email
// verification, personal details, professional details and location. Next
// validates the active step and advances; Previous steps back without
// validating. Next on the last step submits. The email must be verified
// through the flow's OTP gate before step two can be left, and Submit checks
// it again, so verification cannot be skipped by submitting directly.
//
// Submission resolves the selected location ids to their display names from
// the lists the cascade already fetched, posts one payload, stores the
// returned token pair as an auth session and reports the landing URL. A
// failed submission leaves the flow in the failed state, from which it can
// be submitted again.
//
//	flow := signup.NewFlow(client, sessions, signup.WithLandingURL("/home"))
//	flow.Update(func(d *signup.Draft) { d.Account.Email = "a@b.com" })
//	if _, err := flow.Next(ctx); err != nil {
//	    if verrs := validator.ExtractValidationErrors(err); verrs != nil {
//	        // verrs.Map() is field -> message
//	    }
//	}
package signup
