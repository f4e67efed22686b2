/*
Package texpect checks program outputs against expected output templates.
A template is the expected text itself where parts that do not need to
match exactly are replaced by capture tags. The simplest template is the
verbatim text. It only matches exactly that text, except for trailing
newlines which are ignored.

	Disk usage: <usage> of <total>
	Last check <...> ago

The tag <usage> matches any text, even text that spans several lines, and
captures it under the name "usage". The unnamed tag <...> matches any text
without capturing it. Tag names consist of letters, digits, '_', '.' and
'-'. A tag name must not be used twice in a template unless the option
AdvCaptures is set. Then the second occurrence must match the same text
the first one captured:

	Saving <file> ... done
	Loading <file> ... done

Two tags must never be adjacent. There is no way to tell where the text
of the first one ends and the text of the second one begins:

	<user><host>

is an error.

# Whitespace

By default whitespace is matched literally. With NormWS every run of
whitespace, newlines included, matches any non-empty run of whitespace
and trailing whitespace of the output is ignored. Tags that
are surrounded by whitespace may match the empty string without
requiring two whitespace runs in the output.

# Inputs

With Input set, a line of the template that ends with text in brackets
marks an input for interactive programs:

	Username: [admin]
	Password: [secret]

The bracketed text still has to be in the output, as the terminal echoes
it. The Inputs of an Expected tell a driver what to type once the output
ends with an input's Prefix. A prefix has at least InputPrefixMin literal
characters when a tag is between the input and the previous one. Prefixes
never reach back across tags.

# Recovering

When an output does not match, [Expected.Recover] reconstructs the expected
text as close to the output as the template allows and captures what the
tags matched on the way. This is what [Report] shows when EnhanceDiff is
set.

# Expectation Files

Templates can be kept in files together with their options:

	# the ls output of our test dir
	% +norm-ws
	> total <n>
	> -rw-r--r-- 1 <...> foo.txt

Lines with '#' in the first column are comments. Lines with '%' set
options before the first template line. Each template line starts with
'>', followed by an optional space.

Options are given as "+name" or "-name" to switch them on or off and as
"name=value" to set a value: norm-ws, tags, input, adv-captures,
enhance-diff, min-rcount, recover-timeout, match-timeout,
input-prefix-range, rm. A bare "name" switches an option on.
*/
package texpect
