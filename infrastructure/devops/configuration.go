package devops

import (
	"context"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterAPI is the subset of the SSM client used here.
type ParameterAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type ParameterStore struct {
	client ParameterAPI

	mu    sync.Mutex
	cache map[string][]byte
}

func NewParameterStore(client ParameterAPI) *ParameterStore {
	return &ParameterStore{client: client, cache: make(map[string][]byte)}
}

// NewDefaultParameterStore builds an SSM client from the default AWS config
// chain (env, shared config, instance role).
func NewDefaultParameterStore(ctx context.Context) (*ParameterStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewParameterStore(ssm.NewFromConfig(cfg)), nil
}

// Load returns the decrypted value of a parameter. Values are cached for the
// life of the store.
func (s *ParameterStore) Load(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.cache[name]; ok {
		return v, nil
	}

	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return nil, fmt.Errorf("parameter %s has no value", name)
	}

	v := []byte(*out.Parameter.Value)
	s.cache[name] = v
	return v, nil
}

// LoadYAML decodes a YAML parameter into out.
func (s *ParameterStore) LoadYAML(ctx context.Context, name string, out interface{}) error {
	raw, err := s.Load(ctx, name)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal yaml: %w", err)
	}
	return nil
}
