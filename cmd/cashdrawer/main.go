/*
main.go - Application entry point

EXAMPLES:

	# Run the API with a file database
	cashdrawer serve --db ./data/drawer.db

	# Throwaway in-memory database on another port
	cashdrawer serve --db :memory: --port 3000

	# Open, record and close from a terminal
	cashdrawer session open --owner op-ana --name Ana --float 1000
	cashdrawer session record <id> --kind income --amount 500 --concept "Sale A"
	cashdrawer session close <id> --declared 1300

	# Today's report for everyone as a spreadsheet
	cashdrawer report --date 2025-03-10 --format xlsx --out reports/

ENVIRONMENT:

	CASHDRAWER_PORT, CASHDRAWER_DB_PATH, CASHDRAWER_LOG_LEVEL,
	CASHDRAWER_LOG_FORMAT, CASHDRAWER_TIMEZONE, CASHDRAWER_CORS_ORIGINS,
	CASHDRAWER_STALE_CHECK_INTERVAL

SEE ALSO:
  - cli/root.go: Command tree
  - config/config.go: Defaults
*/
package main

import "github.com/warp/cashdrawer/cli"

func main() {
	cli.Execute()
}
