// Command inspector runs the chat inspection checklist bot.
package main

import "github.com/laksh02009/Telegram-bot/internal/cli"

func main() {
	cli.Execute()
}
