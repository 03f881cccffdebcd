// Package telegram posts Buchloe event changes to a Telegram chat through
// the Bot API.
//
// Messages are sent with plain HTTP requests in HTML parse mode. A run with
// only a few changes sends one message per event; larger runs are folded
// into a single digest grouped by month.
//
// Authentication requires a bot token (from @BotFather) and chat ID.
package telegram
