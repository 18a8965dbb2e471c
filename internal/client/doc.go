// Package client is the HTTP client CLI commands use to drive a running
// iboost-buddy daemon.
//
// Requests are retried with exponential backoff when the failure is
// transient (network errors, gateway errors). Failures the daemon reports
// deliberately, such as 409 when no system address is known yet, are
// returned at once as an *APIError.
//
//	c := client.NewClient("http://192.168.1.20:8080")
//	if _, err := c.BoostStart(ctx, 30); err != nil {
//	    fmt.Println(client.GetUserFriendlyMessage(err))
//	}
package client
