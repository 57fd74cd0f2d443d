// Package email delivers the service's transactional mail.
//
// EmailSender abstracts delivery: the Postmark client sends for real, while
// DevSender writes messages to disk for local work. AuthMailer renders the
// verification and password reset messages with the templates subpackage
// and hands them to a sender.
//
//	sender, err := email.NewSenderFromConfig(cfg)
//	mailer := email.NewAuthMailer(sender, cfg)
//	err = mailer.SendVerification(ctx, "ann@x.com", "Ann", token)
package email
