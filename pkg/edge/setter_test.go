package edge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	name string
	args []string
}

func (r *recordingRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.name = name
	r.args = args
	return nil, nil
}

func TestCommandSetterResolvesSwaybg(t *testing.T) {
	r := &recordingRunner{}
	s := &CommandSetter{Kind: SetterSwaybg, Runner: r}
	require.NoError(t, s.Apply(context.Background(), "/tmp/out.png", "DP-1"))
	assert.Equal(t, "swaybg", r.name)
	assert.Equal(t, []string{"-o", "DP-1", "-i", "/tmp/out.png", "-m", "fill"}, r.args)
}

func TestCommandSetterResolvesCustomTemplate(t *testing.T) {
	r := &recordingRunner{}
	s := &CommandSetter{Kind: SetterCustom, CustomTemplate: "my-setter --monitor %monitor% --file %path%", Runner: r}
	require.NoError(t, s.Apply(context.Background(), "/tmp/out.png", "DP-1"))
	assert.Equal(t, "my-setter", r.name)
	assert.Equal(t, []string{"--monitor", "DP-1", "--file", "/tmp/out.png"}, r.args)
}

func TestCommandSetterRejectsEmptyCustomTemplate(t *testing.T) {
	s := &CommandSetter{Kind: SetterCustom, CustomTemplate: "  ", Runner: &recordingRunner{}}
	err := s.Apply(context.Background(), "/tmp/out.png", "DP-1")
	assert.Error(t, err)
}

func TestDescribeCommandMatchesWhatApplyWouldRun(t *testing.T) {
	cmd, err := DescribeCommand(SetterSwaybg, "", "/tmp/out.png", "DP-1")
	require.NoError(t, err)
	assert.Equal(t, "swaybg -o DP-1 -i /tmp/out.png -m fill", cmd)
}

func TestDescribeCommandSubstitutesCustomTemplate(t *testing.T) {
	cmd, err := DescribeCommand(SetterCustom, "my-setter --monitor %monitor% --file %path%", "/tmp/out.png", "DP-1")
	require.NoError(t, err)
	assert.Equal(t, "my-setter --monitor DP-1 --file /tmp/out.png", cmd)
}

func TestDescribeCommandEmptyKindMeansNoSetterConfigured(t *testing.T) {
	cmd, err := DescribeCommand("", "", "/tmp/out.png", "DP-1")
	require.NoError(t, err)
	assert.Equal(t, "", cmd)
}
