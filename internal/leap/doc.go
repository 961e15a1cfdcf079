// Package leap implements the LEAP protocol client used to talk to
// smart-home bridges.
//
// LEAP is JSON over mutually authenticated TLS on port 8081. One stream
// carries three kinds of traffic:
//
//   - Tagged request/response pairs, correlated by Header.ClientTag
//   - Subscription status messages, routed by Header.Url
//   - Unsolicited notifications (e.g. "a device was just heard")
//
// The bridge's certificate is self-signed with no SANs, so the client
// disables hostname verification and instead verifies the presented chain
// against the per-bridge CA from the credential bundle.
//
// Usage:
//
//	client, err := leap.Dial(ctx, leap.Config{Host: addr, CA: ca, Cert: cert, Key: key})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	devices, err := client.Devices(ctx)
package leap
