package config

import (
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

const (
	EnvAPIKey    = "KRAKEN_API_KEY"
	EnvAPISecret = "KRAKEN_API_SECRET"
)

// Credentials API key pair. The secret is base64 encoded.
type Credentials struct {
	APIKey    string
	APISecret string
}

type secretGetter interface {
	GetSecretValue(input *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error)
}

// LoadCredentials reads the API credentials from AWS Secrets Manager when
// credentials_secret_id is set, otherwise from the environment and an optional .env file.
func LoadCredentials(conf Config) (Credentials, error) {
	if conf.CredentialsSecret != "" {
		awsSession, err := session.NewSession()
		if err != nil {
			return Credentials{}, errors.Wrap(err, "failed to create AWS session")
		}
		awsConfig := aws.NewConfig()
		if conf.AWSRegion != "" {
			awsConfig = awsConfig.WithRegion(conf.AWSRegion)
		}
		return credentialsFromSecret(secretsmanager.New(awsSession, awsConfig), conf.CredentialsSecret)
	}

	// .env is optional
	_ = godotenv.Load()

	return credentialsFromEnv()
}

func credentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		APIKey:    os.Getenv(EnvAPIKey),
		APISecret: os.Getenv(EnvAPISecret),
	}
	if creds.APIKey == "" || creds.APISecret == "" {
		return Credentials{}, errors.Errorf("%s and %s environment variables must be set", EnvAPIKey, EnvAPISecret)
	}
	return creds, nil
}

// credentialsFromSecret accepts either a JSON object keyed like the environment
// variables or a "key,secret" string.
func credentialsFromSecret(client secretGetter, secretID string) (Credentials, error) {
	response, err := client.GetSecretValue(&secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return Credentials{}, errors.Wrapf(err, "failed to read secret %s", secretID)
	}
	if response.SecretString == nil {
		return Credentials{}, errors.Errorf("secret %s has no string value", secretID)
	}

	raw := strings.TrimSpace(*response.SecretString)
	var creds Credentials
	if v, err := fastjson.Parse(raw); err == nil && v.Type() == fastjson.TypeObject {
		creds.APIKey = string(v.GetStringBytes(EnvAPIKey))
		creds.APISecret = string(v.GetStringBytes(EnvAPISecret))
	} else {
		parts := strings.SplitN(raw, ",", 2)
		if len(parts) == 2 {
			creds.APIKey = strings.TrimSpace(parts[0])
			creds.APISecret = strings.TrimSpace(parts[1])
		}
	}

	if creds.APIKey == "" || creds.APISecret == "" {
		return Credentials{}, errors.Errorf("secret %s does not contain %s and %s", secretID, EnvAPIKey, EnvAPISecret)
	}
	return creds, nil
}
