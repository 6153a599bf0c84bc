package db

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// TokenProvider acquires a short-lived token that replaces the password.
// String must not reveal secrets; it is logged in verbose mode.
type TokenProvider interface {
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)
	String() string
}

// AzurePostgreSQLScope is the Entra ID scope of Azure Database for PostgreSQL.
const AzurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"

// rdsTokenLifetime is fixed by AWS.
const rdsTokenLifetime = 15 * time.Minute

// azureTokenProvider requests PostgreSQL-scoped tokens from any Azure credential.
type azureTokenProvider struct {
	credential azcore.TokenCredential
	desc       string
}

// newAzureTokenProvider uses a service principal when tenant, client and
// secret are all known, and the DefaultAzureCredential chain (environment,
// workload identity, managed identity, Azure CLI) otherwise.
func newAzureTokenProvider(cfg *pgstage.ConnectionConfig) (*azureTokenProvider, error) {
	if cfg.AzureTenantID != "" && cfg.AzureClientID != "" && cfg.AzureClientSecret != "" {
		cred, err := azidentity.NewClientSecretCredential(cfg.AzureTenantID, cfg.AzureClientID, cfg.AzureClientSecret, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure service principal credential: %w", err)
		}
		return &azureTokenProvider{
			credential: cred,
			desc:       fmt.Sprintf("Azure service principal (tenant=%s, client=%s)", cfg.AzureTenantID, cfg.AzureClientID),
		}, nil
	}

	cred, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
		TenantID: cfg.AzureTenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure default credential: %w", err)
	}
	return &azureTokenProvider{credential: cred, desc: "Azure default credential chain"}, nil
}

func (p *azureTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	tok, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{AzurePostgreSQLScope}})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("azure token request failed: %w", err)
	}
	return tok.Token, tok.ExpiresOn, nil
}

func (p *azureTokenProvider) String() string { return p.desc }

// rdsTokenProvider signs RDS IAM auth tokens with the default AWS credential chain.
type rdsTokenProvider struct {
	endpoint string // host:port
	region   string
	username string
}

func newRDSTokenProvider(cfg *pgstage.ConnectionConfig) (*rdsTokenProvider, error) {
	switch {
	case cfg.Host == "" || cfg.Port == 0:
		return nil, fmt.Errorf("AWS IAM auth requires host and port: %w", pgstage.ErrInvalidConfig)
	case cfg.AWSRegion == "":
		return nil, fmt.Errorf("AWS IAM auth requires region (use --aws-region, $AWS_REGION or connection.aws_region): %w", pgstage.ErrInvalidConfig)
	case cfg.Username == "":
		return nil, fmt.Errorf("AWS IAM auth requires a database username (-U): %w", pgstage.ErrInvalidConfig)
	}
	return &rdsTokenProvider{
		endpoint: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		region:   cfg.AWSRegion,
		username: cfg.Username,
	}, nil
}

func (p *rdsTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(p.region))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	token, err := auth.BuildAuthToken(ctx, p.endpoint, p.region, p.username, awsCfg.Credentials)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign RDS auth token: %w", err)
	}
	return token, time.Now().Add(rdsTokenLifetime), nil
}

func (p *rdsTokenProvider) String() string {
	return fmt.Sprintf("AWS RDS IAM (endpoint=%s, region=%s, user=%s)", p.endpoint, p.region, p.username)
}
