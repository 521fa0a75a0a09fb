package cmd

const DEF_UPCOMING_DAYS = 30

const DESCRIPTION = `
Campusdesk is the command line companion of the campusdesk
student portal. It follows your deadlines live over the portal
push channel, lists what is due soon, and recommends the
courses to take next based on your progression, program and
grades.
`

const (
	WatchDescription = `The watch command connects to the portal push channel and
prints the full deadline list every time it changes. When the
channel is unavailable it silently falls back to polling.

Example:
        campusdesk watch S1001

`
	UpcomingDescription = `The upcoming command fetches your deadlines and lists the
pending ones due within the given window (default 30 days).

Example:
        campusdesk upcoming S1001 --days 14

`
	RecommendDescription = `The recommend command scores the course catalog against your
enrollments, program and GPA and prints the top picks.

Example:
        campusdesk recommend S1001 --program "Computer Science" --gpa 3.8 --enrolled CS101,CS202

`
	LoginDescription = `The login command stores your portal access token on the
system keyring. The token is read from the CAMPUSDESK_TOKEN
environment variable or prompted on standard input.

Example:
        campusdesk login

`
	LogoutDescription = `The logout command removes the stored portal access token
from the system keyring.

Example:
        campusdesk logout

`
)
