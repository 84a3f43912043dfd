package registry

// Defaults is the registry a fresh install starts with.
func Defaults() map[string]Entry {
	return map[string]Entry{
		"gmail": {
			SMTPServer: "smtp.gmail.com",
			IMAPServer: "imap.gmail.com",
		},
		"outlook": {
			SMTPServer: "smtp-mail.outlook.com",
			IMAPServer: "outlook.office365.com",
		},
		"yahoo": {
			SMTPServer: "smtp.mail.yahoo.com",
			IMAPServer: "imap.mail.yahoo.com",
		},
		"icloud": {
			SMTPServer: "smtp.mail.me.com",
			IMAPServer: "imap.mail.me.com",
		},
	}
}
