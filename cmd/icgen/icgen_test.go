package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinapiao/icgen"
)

func run(args ...string) (string, error) {
	var b bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&b)
	cmd.SetErr(&b)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return b.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestPlan(t *testing.T) {
	out, err := run("plan", "--first-n", "36", "--first-p", "72", "--fan", "1.5704", "--stages", "6")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, []string{"0", "36", "2f"}, strings.Fields(lines[1])[:3])
	assert.Equal(t, []string{"1", "23", "3f", "3f", "2f"}, strings.Fields(lines[2])[:5])
	assert.Equal(t, []string{"5", "4", "2f", "2f"}, strings.Fields(lines[6])[:4])
	assert.Equal(t, "total", strings.Fields(lines[7])[0])
	assert.Equal(t, "94", strings.Fields(lines[7])[1])
}

func TestPlanOutOfRange(t *testing.T) {
	for _, args := range [][]string{
		{"plan", "--first-n", "8", "--first-p", "16", "--fan", "2", "--stages", "11"},
		{"plan", "--first-n", "8", "--first-p", "16", "--fan", "0.5", "--stages", "2"},
		{"plan", "--first-n", "0", "--first-p", "16", "--fan", "2", "--stages", "2"},
	} {
		_, err := run(args...)
		require.Error(t, err)
		assert.Equal(t, exitPlan, exitCode(err), strings.Join(args, " "))
		assert.Equal(t, icgen.PlanOutOfRange, icgen.KindOf(err))
	}
}

const inv2 = `
first_nmos_fingers: 8
first_pmos_fingers: 16
fan_factor: 2
num_stages: 2
`

func TestBuildAndLint(t *testing.T) {
	dir := t.TempDir()
	spec := writeFile(t, dir, "inv2.yaml", inv2)
	stream := filepath.Join(dir, "inv2.stream")
	db := filepath.Join(dir, "inv2")

	_, err := run("build", spec, "-", "--out", stream, "--record", db)
	require.NoError(t, err)
	_, err = os.Stat(db + ".sqlite3")
	assert.NoError(t, err)

	b, err := os.ReadFile(stream)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "PLACE name=XP0_0 "))

	out, err := run("lint", stream)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = run("lint", stream, "--library", "-")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = run("build", spec, "-")
	require.NoError(t, err)
	assert.Equal(t, string(b), out)
}

func TestBuildErrors(t *testing.T) {
	dir := t.TempDir()
	for name, doc := range map[string]string{
		"pmos_only": inv2 + "rows: [pmos]\n",
		"long":      strings.Replace(inv2, "num_stages: 2", "num_stages: 11", 1),
		"unknown":   inv2 + "colour: red\n",
	} {
		spec := writeFile(t, dir, name+".yaml", doc)
		_, err := run("build", spec, "-", "--out", filepath.Join(dir, name+".stream"))
		require.Error(t, err, name)
		assert.Equal(t, exitBuild, exitCode(err), name)
		_, err = os.Stat(filepath.Join(dir, name+".stream"))
		assert.True(t, os.IsNotExist(err), "no stream written for %s", name)
	}

	_, err := run("build", filepath.Join(dir, "missing.yaml"), "-")
	assert.Equal(t, exitBuild, exitCode(err))
}

func TestLintFailures(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.stream", strings.Join([]string{
		"PLACE name=XN0_0 template=nmos_2f grid=place at=(0,0) orient=R0 shape=(1,1)",
		"PLACE name=XN0_0 template=nmos_2f grid=place at=(4,0) orient=R0 shape=(1,1)",
		"BOUND layer=1 box=(0,0)(8,6)",
	}, "\n"))
	out, err := run("lint", bad)
	require.Error(t, err)
	assert.Equal(t, exitLint, exitCode(err))
	assert.Contains(t, out, "bad.stream")

	stacked := writeFile(t, dir, "stacked.stream", strings.Join([]string{
		"PLACE name=XN0_0 template=nmos_2f grid=place at=(0,0) orient=R0 shape=(1,1)",
		"ROUTE grid=m2m3 from=(0,0) to=(8,4) dir=lv via0=- via1=- end0=extend end1=extend path=(0,0)(0,4)(8,4)",
		"VIA grid=m2m3 at=(0,4) layers=1:2",
		"BOUND layer=3 box=(0,0)(8,6)",
	}, "\n"))
	_, err = run("lint", stacked)
	assert.NoError(t, err, "adjacent layers without a library")
	out, err = run("lint", stacked, "--library", "-")
	require.Error(t, err)
	assert.Equal(t, exitLint, exitCode(err))
	assert.Contains(t, out, "routing layers of m2m3")

	garbage := writeFile(t, dir, "garbage.stream", "PLACE name=(\n")
	_, err = run("lint", garbage)
	assert.Equal(t, exitLint, exitCode(err))
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", inv2)
	b := writeFile(t, dir, "b.yaml", "first_nmos_fingers: 6\nfirst_pmos_fingers: 12\nfan_factor: 1.5\nnum_stages: 3\n")
	out := filepath.Join(dir, "out")

	_, err := run("sweep", "-", a, b, "--out-dir", out, "--workers", "2")
	require.NoError(t, err)
	for _, n := range []string{"a", "b"} {
		_, err = run("lint", filepath.Join(out, n+".stream"))
		assert.NoError(t, err, n)
	}

	bad := writeFile(t, dir, "c.yaml", strings.Replace(inv2, "num_stages: 2", "num_stages: 12", 1))
	_, err = run("sweep", "-", a, bad, "--out-dir", out)
	require.Error(t, err)
	assert.Equal(t, exitBuild, exitCode(err))

	dac := writeFile(t, dir, "dac.yaml", "kind: capdac\nbits: 4\n")
	_, err = run("sweep", "-", dac, "--out-dir", out)
	assert.Equal(t, exitBuild, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitUsage, exitCode(os.ErrNotExist))
	assert.Equal(t, exitLint, exitCode(withCode(exitLint, os.ErrNotExist)))
	assert.Nil(t, withCode(exitLint, nil))
}
