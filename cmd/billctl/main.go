// Command billctl talks to a running bill service from the terminal.
package main

import (
	"errors"
	"os"

	flags "github.com/jessevdk/go-flags"
)

type options struct {
	URL   string `long:"url" env:"CANEBILL_URL" default:"http://localhost:5001" description:"bill service base URL"`
	Token string `long:"token" env:"CANEBILL_TOKEN" description:"bearer token from the login command"`

	Login      loginCmd      `command:"login" description:"log in and print a session token"`
	Bills      billsCmd      `command:"bills" description:"list bills"`
	AddBill    addBillCmd    `command:"addbill" description:"record a bill"`
	PriceCheck priceCheckCmd `command:"pricecheck" description:"show the price entry in force on a date"`
	Stats      statsCmd      `command:"stats" description:"show dashboard totals"`
}

var opts options

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		// The parser has already printed err.
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
