package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# GoldenEye Navigator Configuration

[llm]
# Upstream model: "clova" (HyperCLOVA X) or "openai"
provider = "clova"
# Leave empty for the provider default
# (clova: https://clovastudio.stream.ntruss.com, HCX-003; openai: https://api.openai.com/v1, gpt-4o-mini)
base_url = ""
model = ""
# Attempts per model call and the fixed delay between them
max_attempts = 3
retry_delay = "1s"
max_tokens = 2048
temperature = 0.6
top_p = 0.8
top_k = 0
repeat_penalty = 5.0
request_timeout = "60s"

[market_data]
# Price history source: "yahoo" or "csv"
provider = "yahoo"
base_url = "https://query1.finance.yahoo.com"
# Directory of <TICKER>.csv files for the csv provider
csv_dir = ""
history_days = 252
timeout = "15s"

[server]
addr = ":8080"
# Bearer token required by GET /api/cron
cron_secret = ""

[alerts]
enabled = false
# Six-field cron expression (with seconds)
schedule = "0 0 5 * * *"
timezone = "Asia/Seoul"
site_url = "http://localhost:8080"

[store]
# Subscription store: "sqlite" or "json"
driver = "sqlite"
# Defaults to navigator.db or subscriptions.json in the config directory
path = ""

[log]
level = "info"
console = true
file = true
file_path = ""
max_size = 100
max_backups = 7
max_age = 30
`

const credentialsTemplate = `# GoldenEye Navigator Credentials
# WARNING: Keep this file secure! Do not commit to version control.

[clova]
api_key = ""
request_id = ""

[openai]
api_key = ""

[smtp]
host = ""
port = 587
username = ""
password = ""
from = ""
`

func createTemplate(configDir, name, content string, perm os.FileMode) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name)
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("writing %s template: %w", name, err)
	}

	return nil
}
