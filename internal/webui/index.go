package webui

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>GTM B2B Outreach</title>
<style>
body { font-family: sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; }
label { display: block; margin-top: 0.75rem; font-weight: bold; }
textarea, input, select { width: 100%; box-sizing: border-box; padding: 0.4rem; }
button { margin-top: 1rem; padding: 0.6rem 1.5rem; }
#status { margin-top: 1rem; color: #555; }
.card { border: 1px solid #ddd; border-radius: 6px; padding: 0.75rem 1rem; margin: 0.5rem 0; }
pre { white-space: pre-wrap; }
</style>
</head>
<body>
<h1>GTM B2B Outreach</h1>
<p>Finds target companies, identifies contacts, researches genuine insights
(website + Reddit), and drafts tailored outreach emails.</p>

<label>Target companies (industry, size, region, tech, etc.)</label>
<textarea id="target" rows="3"></textarea>
<label>Your product/service offering (1-3 sentences)</label>
<textarea id="offering" rows="3"></textarea>
<label>Your name</label>
<input id="sender_name" value="Sales Team">
<label>Your company</label>
<input id="sender_company" value="Our Company">
<label>Calendar link (optional)</label>
<input id="calendar">
<label>Number of companies (1-10)</label>
<input id="count" type="number" min="1" max="10" value="5">
<label>Email style</label>
<select id="style">
<option>Professional</option>
<option>Casual</option>
<option>Cold</option>
<option>Consultative</option>
</select>
<button id="start">Start Outreach</button>
<div id="status"></div>
<div id="results"></div>

<script>
const el = id => document.getElementById(id);
el('start').onclick = async () => {
  el('status').textContent = 'Running pipeline... this can take a few minutes.';
  el('results').innerHTML = '';
  try {
    const resp = await fetch('/api/run', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({
        target_description: el('target').value,
        offering_description: el('offering').value,
        sender_name: el('sender_name').value,
        sender_company: el('sender_company').value,
        calendar_link: el('calendar').value,
        max_companies: parseInt(el('count').value, 10),
        style: el('style').value,
      }),
    });
    const data = await resp.json();
    if (!resp.ok) {
      el('status').textContent = 'Pipeline failed: ' + (data.error || resp.status);
      return;
    }
    el('status').textContent = 'Completed';
    render(data);
  } catch (err) {
    el('status').textContent = 'Request failed: ' + err;
  }
};

function esc(s) {
  const d = document.createElement('div');
  d.textContent = s == null ? '' : String(s);
  return d.innerHTML;
}

function render(r) {
  let html = '<h2>Top target companies</h2>';
  (r.companies || []).forEach((c, i) => {
    html += '<div class="card"><b>' + (i+1) + '. ' + esc(c.name) + '</b><br>' +
      esc(c.website) + '<br>' + esc(c.why_fit) + '</div>';
  });
  html += '<h2>Contacts found</h2>';
  (r.contacts || []).forEach(c => {
    html += '<div class="card"><b>' + esc(c.name) + '</b><ul>';
    (c.contacts || []).forEach(p => {
      html += '<li>' + esc(p.full_name) + ' | ' + esc(p.title) + ' | ' +
        esc(p.email) + (p.inferred ? ' (inferred)' : '') + '</li>';
    });
    html += '</ul></div>';
  });
  html += '<h2>Research insights</h2>';
  (r.research || []).forEach(rc => {
    html += '<div class="card"><b>' + esc(rc.name) + '</b><ul>';
    (rc.insights || []).forEach(s => { html += '<li>' + esc(s) + '</li>'; });
    html += '</ul></div>';
  });
  html += '<h2>Suggested outreach emails</h2>';
  (r.emails || []).forEach((e, i) => {
    html += '<div class="card"><b>' + (i+1) + '. ' + esc(e.company) + ' → ' +
      esc(e.contact) + '</b><br>Subject: ' + esc(e.subject) +
      '<pre>' + esc(e.body) + '</pre></div>';
  });
  el('results').innerHTML = html;
}
</script>
</body>
</html>
`
