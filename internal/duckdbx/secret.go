// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package duckdbx

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
)

// azureSecretSQL builds the CREATE SECRET statement for a storage account.
// AZURE_AUTH_TYPE selects the provider; anything other than
// service_principal or connection_string uses the credential chain.
func azureSecretSQL(account string) (string, error) {
	authType := os.Getenv("AZURE_AUTH_TYPE")
	secretName := "secret_" + strings.ReplaceAll(account, "-", "_")

	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "CREATE OR REPLACE SECRET %s (\n", QuoteIdent(secretName))
	_, _ = fmt.Fprintf(&b, "  TYPE azure,\n")

	switch authType {
	case "service_principal":
		clientID := os.Getenv("AZURE_CLIENT_ID")
		clientSecret := os.Getenv("AZURE_CLIENT_SECRET")
		tenantID := os.Getenv("AZURE_TENANT_ID")
		if clientID == "" || clientSecret == "" || tenantID == "" {
			return "", fmt.Errorf("missing Azure service principal credentials: AZURE_CLIENT_ID/AZURE_CLIENT_SECRET/AZURE_TENANT_ID")
		}
		_, _ = fmt.Fprintf(&b, "  PROVIDER service_principal,\n")
		_, _ = fmt.Fprintf(&b, "  TENANT_ID '%s',\n", EscapeSingle(tenantID))
		_, _ = fmt.Fprintf(&b, "  CLIENT_ID '%s',\n", EscapeSingle(clientID))
		_, _ = fmt.Fprintf(&b, "  CLIENT_SECRET '%s',\n", EscapeSingle(clientSecret))
		_, _ = fmt.Fprintf(&b, "  ACCOUNT_NAME '%s'\n", EscapeSingle(account))

	case "connection_string":
		connectionString := os.Getenv("AZURE_STORAGE_CONNECTION_STRING")
		if connectionString == "" {
			return "", fmt.Errorf("missing Azure connection string: AZURE_STORAGE_CONNECTION_STRING")
		}
		_, _ = fmt.Fprintf(&b, "  CONNECTION_STRING '%s'\n", EscapeSingle(connectionString))

	default:
		_, _ = fmt.Fprintf(&b, "  PROVIDER credential_chain,\n")
		_, _ = fmt.Fprintf(&b, "  ACCOUNT_NAME '%s'\n", EscapeSingle(account))
	}

	_, _ = fmt.Fprintf(&b, ");")
	return b.String(), nil
}

func seedAzureSecretFromEnv(ctx context.Context, conn *sql.Conn, account string) error {
	stmt, err := azureSecretSQL(account)
	if err != nil {
		return err
	}
	_, err = conn.ExecContext(ctx, stmt)
	return err
}

// EscapeSingle escapes a value for use inside a single-quoted SQL literal.
func EscapeSingle(s string) string { return strings.ReplaceAll(s, `'`, `''`) }

// QuoteIdent quotes an SQL identifier.
func QuoteIdent(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }
