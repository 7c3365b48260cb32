package handlers

// User-facing message texts. Kept together so wording stays consistent
// across handlers.
const (
	msgWelcome = "👋 Welcome to SkyClock!\n\n" +
		"/shard – today's shard location\n" +
		"/wax <geyser|grandma|turtle> – today's event times\n" +
		"/remind <event> – set a reminder\n" +
		"/reminders – list your reminders\n" +
		"/cancelreminder <id> – cancel a reminder\n" +
		"/timezone <IANA name> – set your timezone\n" +
		"/clock <12|24> – time display format"

	msgGeneralError    = "❌ Something went wrong. Please try again later."
	msgNotAuthorized   = "🚫 You are not authorized to use this command."
	msgNeedTimezone    = "🌍 I need your timezone first. Send it as an IANA name, e.g. Europe/Lisbon."
	msgBadTimezone     = "That doesn't look like a timezone I know. Try something like America/New_York."
	msgTimezoneSaved   = "Timezone saved: %s"
	msgClockUsage      = "Usage: /clock 12 or /clock 24"
	msgClockSaved      = "Clock format set to %s."
	msgRemindUsage     = "Usage: /remind <geyser|grandma|turtle>"
	msgUnknownEvent    = "I don't know that event. Available: geyser, grandma, turtle."
	msgPickTime        = "Pick the %s time you want to be reminded about (times shown in %s):"
	msgPickFrequency   = "Remind you once, or every day?"
	msgAskMinutes      = "How many minutes before the event should I ping you? (1–%d)"
	msgBadMinutes      = "Please send a number of minutes between 1 and %d."
	msgReminderSet     = "✅ Reminder #%d set: %s at %s, %d min before%s."
	msgReminderGone    = "There is no reminder with that id — maybe it already fired or was cancelled."
	msgCancelUsage     = "Usage: /cancelreminder <id> (see /reminders for ids)"
	msgCancelled       = "🗑 Reminder #%d cancelled."
	msgNoReminders     = "You have no reminders. Create one with /remind <event>."
	msgRestDay         = "😴 Phase %d: rest day — no shard today."
	msgShardApproxNote = "\n⚠️ Location data incomplete for this phase; shard colour is approximate."
)
