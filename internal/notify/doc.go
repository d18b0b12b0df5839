// Package notify delivers monitor notifications.
//
// Sink is the only contract the monitor depends on. DiscordSink posts
// embeds through the Discord bot API, TelegramSink uses the Telegram Bot
// API and LogSink only logs. Message wording lives in an hour-keyed
// template table with a default entry.
package notify
