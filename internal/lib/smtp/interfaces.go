// Package smtp provides the outbound mail transport for decision e-mails.
package smtp

import "io"

// Client is the subset of an SMTP session the sender needs.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface dials and authenticates SMTP sessions.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
